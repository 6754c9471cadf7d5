package engine

import (
	"fmt"

	"github.com/akimenko/graphflow/internal/domain"
)

// Source — терминальный источник данных, найденный разрешением.
//
// Источник всегда указывает на обычный (не виртуальный, не bypass)
// узел. nil-источник означает "данных нет" — легальный исход для
// неподключённых и полностью обойдённых входов.
type Source struct {
	// Ref — узел-источник.
	Ref *ExecRef

	// Slot — индекс выходного слота источника.
	Slot int

	// Type — объявленный тип данных выхода.
	Type string
}

// Resolution — один проход разрешения графа.
//
// Проход регистрирует ExecRef для каждого узла и отвечает на вопросы
// "откуда на самом деле приходят данные в этот вход" и "что на самом
// деле отдаёт этот выход". Проход одноразовый: результаты не кэшируются,
// следующее исполнение создаёт новый Resolution.
type Resolution struct {
	refs map[string]*ExecRef

	// virtualLinks — внешняя таблица альтернативных входящих связей
	// для виртуальных узлов без собственного входа (primitive-style).
	virtualLinks map[string]domain.LinkID
}

// NewResolution создаёт проход разрешения для корневого графа.
func NewResolution(g *domain.Graph) *Resolution {
	r := &Resolution{
		refs:         make(map[string]*ExecRef),
		virtualLinks: make(map[string]domain.LinkID),
	}
	r.RegisterGraph(g, nil)
	return r
}

// RegisterGraph регистрирует все узлы графа под указанным путём subgraph'ов.
// Вложенные subgraph'ы регистрируются отдельными вызовами со своим путём.
func (r *Resolution) RegisterGraph(g *domain.Graph, path []string) {
	for _, node := range g.Nodes() {
		ref := &ExecRef{Node: node, Graph: g, Path: path}
		r.refs[ref.ExecutionID()] = ref
	}
}

// Ref возвращает зарегистрированный ExecRef узла на пути.
func (r *Resolution) Ref(path []string, id domain.NodeID) *ExecRef {
	return r.refs[refKey(path, id)]
}

// SetVirtualLink задаёт альтернативную входящую связь для виртуального
// узла без собственного входа.
func (r *Resolution) SetVirtualLink(path []string, id domain.NodeID, link domain.LinkID) {
	r.virtualLinks[refKey(path, id)] = link
}

// visitKey — ключ множества посещённых точек разрешения.
type visitKey struct {
	ref    string
	slot   int
	output bool
}

// ResolveInput разрешает подключённый вход до настоящего источника данных.
//
// Возвращает nil без ошибки, если вход не подключён или разрешение
// упёрлось в отсутствие данных (например, bypass-узел без совместимого
// входа). Структурные проблемы графа и циклы возвращаются ошибками
// *SlotIndexError, *InvalidLinkError, *RecursionError.
func (r *Resolution) ResolveInput(ref *ExecRef, slot int) (*Source, error) {
	return r.resolveInput(ref, slot, make(map[visitKey]bool))
}

// ResolveOutput разрешает выход узла до настоящего источника данных.
// wantType — тип, который ожидает потребитель (для подбора входа
// у bypass-узлов).
func (r *Resolution) ResolveOutput(ref *ExecRef, slot int, wantType string) (*Source, error) {
	return r.resolveOutput(ref, slot, wantType, make(map[visitKey]bool))
}

func (r *Resolution) resolveInput(ref *ExecRef, slot int, visited map[visitKey]bool) (*Source, error) {
	in := ref.Node.Input(slot)
	if in == nil {
		return nil, &SlotIndexError{NodeID: ref.Node.ID, Slot: slot}
	}

	key := visitKey{ref: ref.ExecutionID(), slot: slot}
	if visited[key] {
		return nil, &RecursionError{NodeID: ref.Node.ID, Title: ref.DisplayName(), Path: ref.Path}
	}
	visited[key] = true

	if !in.Connected() {
		return nil, nil
	}

	link := ref.Graph.Link(*in.Link)
	if link == nil {
		return nil, &InvalidLinkError{
			NodeID:  ref.Node.ID,
			LinkID:  *in.Link,
			Message: fmt.Sprintf("input %d of node %d references missing link %d", slot, ref.Node.ID, *in.Link),
		}
	}

	origin := r.Ref(ref.Path, link.OriginID)
	if origin == nil {
		return nil, &InvalidLinkError{
			NodeID:  ref.Node.ID,
			LinkID:  link.ID,
			Message: fmt.Sprintf("link %d origin node %d is not registered for this pass", link.ID, link.OriginID),
		}
	}

	// Потребитель ожидает тип своего входа; джокер уточняем
	// типом выходного слота источника.
	want := in.Type
	if want == domain.WildcardType {
		if out := origin.Node.Output(link.OriginSlot); out != nil {
			want = out.Type
		}
	}

	return r.resolveOutput(origin, link.OriginSlot, want, visited)
}

func (r *Resolution) resolveOutput(ref *ExecRef, slot int, wantType string, visited map[visitKey]bool) (*Source, error) {
	out := ref.Node.Output(slot)
	if out == nil {
		return nil, &SlotIndexError{NodeID: ref.Node.ID, Slot: slot, Output: true}
	}

	key := visitKey{ref: ref.ExecutionID(), slot: slot, output: true}
	if visited[key] {
		return nil, &RecursionError{NodeID: ref.Node.ID, Title: ref.DisplayName(), Path: ref.Path}
	}
	visited[key] = true

	switch {
	case ref.Node.Mode == domain.ModeBypass:
		return r.resolveBypass(ref, slot, wantType, visited)

	case ref.Node.Mode == domain.ModeNever:
		// Заглушённый узел данных не производит.
		return nil, nil

	case ref.Node.Tag.IsVirtual():
		return r.resolveVirtual(ref, slot, wantType, visited)

	default:
		return &Source{Ref: ref, Slot: slot, Type: out.Type}, nil
	}
}

// resolveBypass подбирает вход bypass-узла, совместимый с ожидаемым типом.
//
// Порядок подбора фиксирован: сначала вход с индексом запрошенного
// выходного слота, затем остальные входы в порядке объявления.
// При нескольких одинаково типизированных входах выбор зависит от
// порядка объявления; этот tie-break сохраняется намеренно.
func (r *Resolution) resolveBypass(ref *ExecRef, slot int, wantType string, visited map[visitKey]bool) (*Source, error) {
	if in := ref.Node.Input(slot); in != nil && domain.TypesCompatible(in.Type, wantType) {
		return r.resolveInput(ref, slot, visited)
	}

	for i := range ref.Node.Inputs {
		if i == slot {
			continue
		}
		if domain.TypesCompatible(ref.Node.Inputs[i].Type, wantType) {
			return r.resolveInput(ref, i, visited)
		}
	}

	// Совместимого входа нет — данных нет.
	return nil, nil
}

// resolveVirtual прослеживает транзитный узел до его источника.
func (r *Resolution) resolveVirtual(ref *ExecRef, slot int, wantType string, visited map[visitKey]bool) (*Source, error) {
	if ref.Node.Input(slot) != nil {
		return r.resolveInput(ref, slot, visited)
	}

	if linkID, ok := r.virtualLinks[ref.ExecutionID()]; ok {
		link := ref.Graph.Link(linkID)
		if link == nil {
			return nil, &InvalidLinkError{
				NodeID:  ref.Node.ID,
				LinkID:  linkID,
				Message: fmt.Sprintf("virtual link %d of node %d references missing link", linkID, ref.Node.ID),
			}
		}

		origin := r.Ref(ref.Path, link.OriginID)
		if origin == nil {
			return nil, &InvalidLinkError{
				NodeID:  ref.Node.ID,
				LinkID:  link.ID,
				Message: fmt.Sprintf("virtual link %d origin node %d is not registered for this pass", link.ID, link.OriginID),
			}
		}

		return r.resolveOutput(origin, link.OriginSlot, wantType, visited)
	}

	return nil, nil
}
