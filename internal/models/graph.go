package models

type GraphNode struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Type         string `json:"type"`
	MasteryLevel int    `json:"mastery_level"`
}

type GraphLink struct {
	Source           string `json:"source"`
	Target           string `json:"target"`
	RelationshipType string `json:"relationship_type"`
}

type KnowledgeGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// EmptyKnowledgeGraph returns a graph whose slices encode as [] rather than null.
func EmptyKnowledgeGraph() KnowledgeGraph {
	return KnowledgeGraph{Nodes: []GraphNode{}, Links: []GraphLink{}}
}

type PathConcept struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Order       FlexInt `json:"order"`
}

type PathMaterial struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Order   FlexInt `json:"order"`
}

// LearningPath is the reverse-learning result: prerequisites of a problem.
type LearningPath struct {
	Concepts  []PathConcept  `json:"concepts"`
	Materials []PathMaterial `json:"materials"`
}

func EmptyLearningPath() LearningPath {
	return LearningPath{Concepts: []PathConcept{}, Materials: []PathMaterial{}}
}

type Word struct {
	Word             string     `json:"word"`
	Frequency        int        `json:"frequency"`
	Category         string     `json:"category"`
	RelatedMaterials StringList `json:"related_materials"`
}
