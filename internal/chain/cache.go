package chain

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/akimenko/graphflow/internal/comfy"
	"github.com/akimenko/graphflow/internal/domain"
)

// cacheDirName — подкаталог выходного каталога бэкенда для
// закэшированных файлов цепочек.
const cacheDirName = "chain_result"

// OutputCache — кэш выходных файлов узлов цепочки.
//
// Файлы копируются из выходного каталога бэкенда в chain_result,
// чтобы следующие узлы цепочки ссылались на стабильный путь, который
// не перетрётся повторным запуском того же workflow.
type OutputCache struct {
	// outputDir — выходной каталог бэкенда (файлы там появляются
	// после выполнения prompt).
	outputDir string

	mu     sync.Mutex
	paths  map[string]string // "{chainNode}.{graphNode}" → cached path
	logger *slog.Logger
}

// NewOutputCache создаёт кэш поверх выходного каталога бэкенда.
func NewOutputCache(outputDir string, logger *slog.Logger) *OutputCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutputCache{
		outputDir: outputDir,
		paths:     make(map[string]string),
		logger:    logger,
	}
}

// Store копирует выходные файлы узла цепочки в кэш и регистрирует
// их пути для dynamic-подстановок следующих узлов.
//
// Файл, который не удалось скопировать, регистрируется по исходному
// пути: подстановка останется рабочей, пока бэкенд его не перетёр.
func (c *OutputCache) Store(executionID, chainNodeID string, outputs []comfy.Output) []domain.CachedOutput {
	cached := make([]domain.CachedOutput, 0, len(outputs))

	for _, out := range outputs {
		srcRel := filepath.Join(out.File.Subfolder, out.File.Filename)
		dstRel := filepath.Join(cacheDirName, executionID, chainNodeID, out.File.Filename)

		rel := dstRel
		if err := c.copyFile(filepath.Join(c.outputDir, srcRel), filepath.Join(c.outputDir, dstRel)); err != nil {
			c.logger.Warn("output caching failed, using original path",
				"file", srcRel, "error", err)
			rel = srcRel
		}

		entry := domain.CachedOutput{
			NodeID:     out.NodeID,
			Filename:   out.File.Filename,
			Subfolder:  out.File.Subfolder,
			CachedPath: rel,
		}
		cached = append(cached, entry)

		c.mu.Lock()
		c.paths[cacheKey(chainNodeID, out.NodeID)] = rel
		c.mu.Unlock()
	}

	return cached
}

// Lookup возвращает закэшированный путь выхода узла цепочки.
func (c *OutputCache) Lookup(chainNodeID, graphNodeID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	path, ok := c.paths[cacheKey(chainNodeID, graphNodeID)]
	return path, ok
}

// Register вносит путь в кэш напрямую (для тестов и восстановления).
func (c *OutputCache) Register(chainNodeID, graphNodeID, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths[cacheKey(chainNodeID, graphNodeID)] = path
}

func cacheKey(chainNodeID, graphNodeID string) string {
	return chainNodeID + "." + graphNodeID
}

func (c *OutputCache) copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return out.Close()
}
