package chain

import (
	"log/slog"
	"strings"

	"github.com/akimenko/graphflow/internal/domain"
)

// ResolveBindings подставляет значения входов в prompt узла цепочки.
//
// Ключ binding'а — "{id-узла-графа}.{имя-виджета}". Static-подстановка
// пишет значение как есть; dynamic-подстановка берёт закэшированный
// путь выхода предыдущего узла цепочки. Невалидные и неразрешимые
// dynamic-подстановки пропускаются с предупреждением: отсутствие
// файла обнаружит бэкенд при выполнении.
//
// Исходный prompt не мутируется.
func ResolveBindings(
	node *domain.ChainNode,
	chainNodes []domain.ChainNode,
	cache *OutputCache,
	logger *slog.Logger,
) domain.PromptGraph {
	if logger == nil {
		logger = slog.Default()
	}
	prompt := node.Prompt.Clone()

	for key, binding := range node.Bindings {
		graphNodeID, widget, ok := splitBindingKey(key)
		if !ok {
			logger.Warn("malformed binding key", "key", key)
			continue
		}

		target, exists := prompt[graphNodeID]
		if !exists {
			logger.Warn("binding targets unknown graph node", "key", key)
			continue
		}
		if target.Inputs == nil {
			target.Inputs = make(map[string]any)
		}

		switch binding.Type {
		case domain.BindingStatic:
			target.Inputs[widget] = binding.Value

		case domain.BindingDynamic:
			if binding.SourceNodeIndex < 0 || binding.SourceNodeIndex >= len(chainNodes) {
				logger.Warn("dynamic binding source index out of range",
					"key", key, "index", binding.SourceNodeIndex)
				continue
			}
			sourceChainNode := chainNodes[binding.SourceNodeIndex].ID
			path, found := cache.Lookup(sourceChainNode, binding.SourceOutputID)
			if !found {
				logger.Warn("dynamic binding has no cached output",
					"key", key, "source", sourceChainNode, "output", binding.SourceOutputID)
				continue
			}
			target.Inputs[widget] = path

		default:
			logger.Warn("unknown binding type", "key", key, "type", string(binding.Type))
		}
	}

	return prompt
}

// splitBindingKey разбирает ключ "{id-узла}.{имя-виджета}".
func splitBindingKey(key string) (nodeID, widget string, ok bool) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
