package domain

// Graph — арена узлов и связей одного workflow.
//
// Узлы и связи живут в таблицах, ключованных id; никаких взаимных
// указателей node→graph или link→node нет. Разрешение потока данных
// (пакет engine) оперирует только id и путями.
type Graph struct {
	// ID — идентификатор графа (для вложенных subgraph-узлов).
	ID string `json:"id,omitempty"`

	nodes map[NodeID]*Node
	links map[LinkID]*Link

	// order — порядок добавления узлов; нужен для детерминированных
	// обходов и сериализации.
	order []NodeID

	nextLinkID LinkID
}

// NewGraph создаёт пустой граф.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[NodeID]*Node),
		links:      make(map[LinkID]*Link),
		nextLinkID: 1,
	}
}

// AddNode добавляет узел в граф.
// Возвращает ErrDuplicateNode, если узел с таким id уже есть.
func (g *Graph) AddNode(n *Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNode
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// Node возвращает узел по id.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// Link возвращает связь по id.
func (g *Graph) Link(id LinkID) *Link {
	return g.links[id]
}

// Nodes возвращает узлы в порядке добавления.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Links возвращает все связи графа.
func (g *Graph) Links() []*Link {
	links := make([]*Link, 0, len(g.links))
	for _, id := range g.order {
		node := g.nodes[id]
		for i := range node.Outputs {
			for _, lid := range node.Outputs[i].Links {
				if l := g.links[lid]; l != nil {
					links = append(links, l)
				}
			}
		}
	}
	return links
}

// Size возвращает количество узлов.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// Connect создаёт связь от выходного слота origin к входному слоту target.
//
// Обновляет оба слота: выход получает id связи в список Links,
// вход получает его в Link. Существующая входящая связь приёмника
// разрывается (вход может питаться только одной связью).
func (g *Graph) Connect(originID NodeID, originSlot int, targetID NodeID, targetSlot int) (*Link, error) {
	origin := g.nodes[originID]
	if origin == nil {
		return nil, ErrNodeNotFound
	}
	target := g.nodes[targetID]
	if target == nil {
		return nil, ErrNodeNotFound
	}

	out := origin.Output(originSlot)
	if out == nil {
		return nil, ErrSlotOutOfRange
	}
	in := target.Input(targetSlot)
	if in == nil {
		return nil, ErrSlotOutOfRange
	}

	if !TypesCompatible(out.Type, in.Type) {
		return nil, ErrTypeMismatch
	}

	// Разрываем существующую входящую связь
	if in.Link != nil {
		g.removeLink(*in.Link)
	}

	link := &Link{
		ID:         g.nextLinkID,
		OriginID:   originID,
		OriginSlot: originSlot,
		TargetID:   targetID,
		TargetSlot: targetSlot,
	}
	g.nextLinkID++

	g.links[link.ID] = link
	out.Links = append(out.Links, link.ID)
	in.Link = &link.ID

	return link, nil
}

// AddLink регистрирует уже сконструированную связь (при десериализации).
func (g *Graph) AddLink(l *Link) error {
	if _, exists := g.links[l.ID]; exists {
		return ErrDuplicateLink
	}
	g.links[l.ID] = l
	if l.ID >= g.nextLinkID {
		g.nextLinkID = l.ID + 1
	}
	return nil
}

// removeLink удаляет связь и чистит ссылки на неё в слотах.
func (g *Graph) removeLink(id LinkID) {
	link := g.links[id]
	if link == nil {
		return
	}

	if origin := g.nodes[link.OriginID]; origin != nil {
		if out := origin.Output(link.OriginSlot); out != nil {
			for i, lid := range out.Links {
				if lid == id {
					out.Links = append(out.Links[:i], out.Links[i+1:]...)
					break
				}
			}
		}
	}

	if target := g.nodes[link.TargetID]; target != nil {
		if in := target.Input(link.TargetSlot); in != nil && in.Link != nil && *in.Link == id {
			in.Link = nil
		}
	}

	delete(g.links, id)
}

// RemoveNode удаляет узел вместе со всеми его связями.
func (g *Graph) RemoveNode(id NodeID) {
	node := g.nodes[id]
	if node == nil {
		return
	}

	for i := range node.Inputs {
		if node.Inputs[i].Link != nil {
			g.removeLink(*node.Inputs[i].Link)
		}
	}
	for i := range node.Outputs {
		// Копия: removeLink мутирует слайс Links
		links := make([]LinkID, len(node.Outputs[i].Links))
		copy(links, node.Outputs[i].Links)
		for _, lid := range links {
			g.removeLink(lid)
		}
	}

	delete(g.nodes, id)
	for i, nid := range g.order {
		if nid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}
