package domain

// NodeID — идентификатор узла, стабильный и уникальный в пределах графа.
type NodeID int64

// LinkID — идентификатор связи между слотами.
type LinkID int64

// WildcardType — тип-джокер, совместимый с любым типом данных.
const WildcardType = "*"

// NodeMode — режим работы узла.
//
// Режим влияет на то, как узел участвует в разрешении потока данных:
//   - Always: узел выполняется как обычно
//   - Never: узел заглушён и не производит работы
//   - Bypass: узел пропускает совместимый вход напрямую на выход
type NodeMode int

const (
	// ModeAlways — узел выполняется.
	ModeAlways NodeMode = iota

	// ModeNever — узел заглушён (muted).
	ModeNever

	// ModeBypass — узел в режиме обхода: вход прокидывается на выход.
	ModeBypass
)

// String возвращает строковое представление режима.
func (m NodeMode) String() string {
	switch m {
	case ModeAlways:
		return "always"
	case ModeNever:
		return "never"
	case ModeBypass:
		return "bypass"
	default:
		return "unknown"
	}
}

// InputSlot — входной слот узла.
type InputSlot struct {
	// Name — имя слота.
	Name string `json:"name"`

	// Type — объявленный тип данных ("IMAGE", "LATENT", "*" и т.д.).
	Type string `json:"type"`

	// Link — id входящей связи. nil означает, что слот не подключён.
	Link *LinkID `json:"link"`

	// Widget — имя виджета, если вход питается виджетом, а не связью.
	// Виджетные входы не имеют Link.
	Widget string `json:"widget,omitempty"`
}

// Connected возвращает true, если слот подключён связью.
func (s *InputSlot) Connected() bool {
	return s.Link != nil
}

// OutputSlot — выходной слот узла.
type OutputSlot struct {
	// Name — имя слота.
	Name string `json:"name"`

	// Type — объявленный тип данных.
	Type string `json:"type"`

	// Links — id исходящих связей (ноль или больше).
	Links []LinkID `json:"links"`
}

// Link — направленное ребро от выходного слота к входному.
type Link struct {
	// ID — идентификатор связи.
	ID LinkID `json:"id"`

	// OriginID — узел-источник.
	OriginID NodeID `json:"origin_id"`

	// OriginSlot — индекс выходного слота источника.
	OriginSlot int `json:"origin_slot"`

	// TargetID — узел-приёмник.
	TargetID NodeID `json:"target_id"`

	// TargetSlot — индекс входного слота приёмника.
	TargetSlot int `json:"target_slot"`
}

// Node — узел графа workflow.
//
// Node хранит только данные: слоты, виджеты, режим и свойства.
// Поведение разрешения (bypass, virtual) живёт в пакете engine.
type Node struct {
	// ID — идентификатор узла.
	ID NodeID `json:"id"`

	// Type — имя типа узла ("KSampler", "Reroute", "SetNode" и т.д.).
	Type string `json:"type"`

	// Title — необязательный пользовательский заголовок.
	Title string `json:"title,omitempty"`

	// Mode — режим работы узла.
	Mode NodeMode `json:"mode"`

	// Pos — позиция на канвасе [x, y]. Для ядра не значима, но сохраняется.
	Pos [2]float64 `json:"pos"`

	// Size — размер на канвасе [w, h].
	Size [2]float64 `json:"size"`

	// Inputs — упорядоченные входные слоты.
	Inputs []InputSlot `json:"inputs"`

	// Outputs — упорядоченные выходные слоты.
	Outputs []OutputSlot `json:"outputs"`

	// Widgets — упорядоченные виджеты узла.
	Widgets []Widget `json:"widgets"`

	// Properties — произвольные свойства узла.
	Properties map[string]any `json:"properties,omitempty"`

	// Tag — закрытая классификация узла, выставляется один раз
	// при конструировании из TypeRegistry.
	Tag NodeTag `json:"-"`
}

// DisplayName возвращает заголовок узла или имя типа, если заголовка нет.
func (n *Node) DisplayName() string {
	if n.Title != "" {
		return n.Title
	}
	return n.Type
}

// Input возвращает входной слот по индексу.
// Возвращает nil, если индекс вне диапазона.
func (n *Node) Input(slot int) *InputSlot {
	if slot < 0 || slot >= len(n.Inputs) {
		return nil
	}
	return &n.Inputs[slot]
}

// Output возвращает выходной слот по индексу.
// Возвращает nil, если индекс вне диапазона.
func (n *Node) Output(slot int) *OutputSlot {
	if slot < 0 || slot >= len(n.Outputs) {
		return nil
	}
	return &n.Outputs[slot]
}

// Widget возвращает виджет по имени.
func (n *Node) Widget(name string) *Widget {
	for i := range n.Widgets {
		if n.Widgets[i].Name == name {
			return &n.Widgets[i]
		}
	}
	return nil
}

// TypesCompatible проверяет совместимость объявленных типов слотов.
// Джокер "*" совместим с любым типом.
func TypesCompatible(a, b string) bool {
	if a == WildcardType || b == WildcardType {
		return true
	}
	return a == b
}
