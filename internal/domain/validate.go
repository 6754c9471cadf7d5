package domain

import "fmt"

// Validate проверяет структурные инварианты графа.
//
// Проверяется:
//   - каждый подключённый вход ссылается на существующую связь
//   - каждая связь ссылается на существующие узлы и слоты с обеих сторон
//   - объявленные типы источника и приёмника совместимы ("*" совместим со всем)
//   - виджетный вход не подключён связью
//   - списки Links выходных слотов не содержат висячих id
//
// Возвращает первую найденную проблему как *GraphError.
func (g *Graph) Validate() error {
	for _, id := range g.order {
		node := g.nodes[id]

		for slot := range node.Inputs {
			in := &node.Inputs[slot]

			if in.Widget != "" && in.Link != nil {
				return &GraphError{
					NodeID:  node.ID,
					Message: fmt.Sprintf("node %d (%s): widget input %q must not be linked", node.ID, node.DisplayName(), in.Name),
					Err:     ErrDanglingLink,
				}
			}

			if in.Link == nil {
				continue
			}

			link := g.links[*in.Link]
			if link == nil {
				return &GraphError{
					NodeID:  node.ID,
					LinkID:  *in.Link,
					Message: fmt.Sprintf("node %d (%s): input %q references missing link %d", node.ID, node.DisplayName(), in.Name, *in.Link),
					Err:     ErrDanglingLink,
				}
			}

			if link.TargetID != node.ID || link.TargetSlot != slot {
				return &GraphError{
					NodeID:  node.ID,
					LinkID:  link.ID,
					Message: fmt.Sprintf("link %d target does not match input %d of node %d", link.ID, slot, node.ID),
					Err:     ErrDanglingLink,
				}
			}
		}

		for slot := range node.Outputs {
			for _, lid := range node.Outputs[slot].Links {
				link := g.links[lid]
				if link == nil {
					return &GraphError{
						NodeID:  node.ID,
						LinkID:  lid,
						Message: fmt.Sprintf("node %d (%s): output %d references missing link %d", node.ID, node.DisplayName(), slot, lid),
						Err:     ErrDanglingLink,
					}
				}
				if link.OriginID != node.ID || link.OriginSlot != slot {
					return &GraphError{
						NodeID:  node.ID,
						LinkID:  lid,
						Message: fmt.Sprintf("link %d origin does not match output %d of node %d", lid, slot, node.ID),
						Err:     ErrDanglingLink,
					}
				}
			}
		}
	}

	for _, link := range g.links {
		origin := g.nodes[link.OriginID]
		if origin == nil {
			return &GraphError{
				LinkID:  link.ID,
				Message: fmt.Sprintf("link %d references missing origin node %d", link.ID, link.OriginID),
				Err:     ErrDanglingLink,
			}
		}
		target := g.nodes[link.TargetID]
		if target == nil {
			return &GraphError{
				LinkID:  link.ID,
				Message: fmt.Sprintf("link %d references missing target node %d", link.ID, link.TargetID),
				Err:     ErrDanglingLink,
			}
		}

		out := origin.Output(link.OriginSlot)
		if out == nil {
			return &GraphError{
				NodeID:  origin.ID,
				LinkID:  link.ID,
				Message: fmt.Sprintf("link %d references missing output slot %d of node %d", link.ID, link.OriginSlot, origin.ID),
				Err:     ErrSlotOutOfRange,
			}
		}
		in := target.Input(link.TargetSlot)
		if in == nil {
			return &GraphError{
				NodeID:  target.ID,
				LinkID:  link.ID,
				Message: fmt.Sprintf("link %d references missing input slot %d of node %d", link.ID, link.TargetSlot, target.ID),
				Err:     ErrSlotOutOfRange,
			}
		}

		if !TypesCompatible(out.Type, in.Type) {
			return &GraphError{
				NodeID:  target.ID,
				LinkID:  link.ID,
				Message: fmt.Sprintf("link %d: type %q of node %d output %d is not compatible with type %q of node %d input %d",
					link.ID, out.Type, origin.ID, link.OriginSlot, in.Type, target.ID, link.TargetSlot),
				Err: ErrTypeMismatch,
			}
		}
	}

	return nil
}
