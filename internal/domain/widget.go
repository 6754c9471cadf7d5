package domain

// Widget — элемент ввода параметра узла.
//
// Виджеты несут текущие значения параметров (seed, steps, имя файла и т.д.)
// и метаданные для валидации. Сами значения ядро не интерпретирует,
// кроме Set/Get узлов, которые читают имя переменной из первого виджета.
type Widget struct {
	// Name — имя виджета.
	Name string `json:"name"`

	// Type — тип виджета ("number", "combo", "text", "toggle").
	Type string `json:"type"`

	// Value — текущее значение.
	Value any `json:"value"`

	// Options — метаданные валидации: min/max/step для чисел,
	// список значений для combo.
	Options WidgetOptions `json:"options,omitempty"`

	// OnChange — необязательный callback, вызываемый при смене значения.
	// Не сериализуется.
	OnChange func(old, new any) `json:"-"`
}

// WidgetOptions — ограничения и варианты значений виджета.
type WidgetOptions struct {
	// Min и Max — границы для числовых виджетов.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// Step — шаг изменения числового значения.
	Step *float64 `json:"step,omitempty"`

	// Values — допустимые значения для combo-виджета.
	Values []string `json:"values,omitempty"`
}

// SetValue устанавливает значение виджета и дёргает callback.
func (w *Widget) SetValue(v any) {
	old := w.Value
	w.Value = v
	if w.OnChange != nil {
		w.OnChange(old, v)
	}
}

// StringValue возвращает значение как строку, если это строка.
func (w *Widget) StringValue() (string, bool) {
	s, ok := w.Value.(string)
	return s, ok
}
