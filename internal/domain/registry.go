package domain

// NodeTag — закрытая классификация узла для разрешения потока данных.
//
// Тег вычисляется один раз при конструировании узла из статических
// метаданных типа (TypeRegistry) и далее не перепроверяется.
type NodeTag int

const (
	// TagRegular — обычный узел, производящий данные.
	// Разрешение останавливается на нём.
	TagRegular NodeTag = iota

	// TagReroute — виртуальный транзитный узел (reroute):
	// существует только для организации графа.
	TagReroute

	// TagPrimitive — виртуальный узел-значение (primitive):
	// отдаёт значение виджета через виртуальную связь.
	TagPrimitive

	// TagSet — узел-издатель именованной переменной.
	TagSet

	// TagGet — узел-подписчик именованной переменной.
	TagGet
)

// IsVirtual возвращает true для транзитных узлов, сквозь которые
// нужно разрешаться до настоящего источника данных.
func (t NodeTag) IsVirtual() bool {
	return t == TagReroute || t == TagPrimitive
}

// String возвращает строковое представление тега.
func (t NodeTag) String() string {
	switch t {
	case TagRegular:
		return "regular"
	case TagReroute:
		return "reroute"
	case TagPrimitive:
		return "primitive"
	case TagSet:
		return "set"
	case TagGet:
		return "get"
	default:
		return "unknown"
	}
}

// TypeRegistry — статический реестр классификации типов узлов.
//
// Реестр отвечает на единственный вопрос: каким тегом помечать узел
// данного типа. Незарегистрированные типы считаются обычными узлами.
type TypeRegistry struct {
	tags map[string]NodeTag
}

// NewTypeRegistry создаёт реестр с классификацией известных
// служебных типов по умолчанию.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{tags: make(map[string]NodeTag)}

	// Транзитные типы
	r.Register("Reroute", TagReroute)
	r.Register("RerouteNode", TagReroute)
	r.Register("PrimitiveNode", TagPrimitive)

	// Именованные переменные
	r.Register("SetNode", TagSet)
	r.Register("GetNode", TagGet)

	return r
}

// Register задаёт тег для типа узла.
func (r *TypeRegistry) Register(nodeType string, tag NodeTag) {
	r.tags[nodeType] = tag
}

// Tag возвращает тег для типа узла.
// Незарегистрированный тип — обычный узел.
func (r *TypeRegistry) Tag(nodeType string) NodeTag {
	if tag, ok := r.tags[nodeType]; ok {
		return tag
	}
	return TagRegular
}

// NewNode конструирует узел с тегом из реестра.
func (r *TypeRegistry) NewNode(id NodeID, nodeType string) *Node {
	return &Node{
		ID:   id,
		Type: nodeType,
		Mode: ModeAlways,
		Tag:  r.Tag(nodeType),
	}
}
