package domain

import (
	"encoding/json"
	"fmt"
)

// graphEnvelope — JSON-представление сохранённого workflow.
type graphEnvelope struct {
	ID    string  `json:"id,omitempty"`
	Nodes []*Node `json:"nodes"`
	Links []*Link `json:"links"`
}

// ParseGraph разбирает сохранённый workflow в Graph.
//
// Каждому узлу выставляется тег из реестра, после сборки граф
// проходит Validate. Ошибки структуры возвращаются как *GraphError.
func ParseGraph(data []byte, reg *TypeRegistry) (*Graph, error) {
	var env graphEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}

	g := NewGraph()
	g.ID = env.ID

	for _, node := range env.Nodes {
		node.Tag = reg.Tag(node.Type)
		if err := g.AddNode(node); err != nil {
			return nil, &GraphError{
				NodeID:  node.ID,
				Message: fmt.Sprintf("node %d: %v", node.ID, err),
				Err:     err,
			}
		}
	}

	for _, link := range env.Links {
		if err := g.AddLink(link); err != nil {
			return nil, &GraphError{
				LinkID:  link.ID,
				Message: fmt.Sprintf("link %d: %v", link.ID, err),
				Err:     err,
			}
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	return g, nil
}

// MarshalGraph сериализует граф в сохранённый формат workflow.
func MarshalGraph(g *Graph) ([]byte, error) {
	env := graphEnvelope{
		ID:    g.ID,
		Nodes: g.Nodes(),
		Links: make([]*Link, 0),
	}

	seen := make(map[LinkID]bool)
	for _, node := range env.Nodes {
		for i := range node.Inputs {
			if node.Inputs[i].Link == nil {
				continue
			}
			id := *node.Inputs[i].Link
			if seen[id] {
				continue
			}
			if l := g.Link(id); l != nil {
				env.Links = append(env.Links, l)
				seen[id] = true
			}
		}
	}

	return json.MarshalIndent(env, "", "  ")
}
