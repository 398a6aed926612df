package engine

// Config holds configuration for heap creation
type Config struct {
	// ModuleName names the wazero module that owns the memory.
	// Empty means "heap".
	ModuleName string

	// InitialPages sets the initial memory size in pages (64KB each).
	// 0 means one page.
	InitialPages uint32

	// MemoryLimitPages caps growth in pages.
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

const (
	defaultModuleName = "heap"
	maxPages          = 65536
)

func (c *Config) moduleName() string {
	if c == nil || c.ModuleName == "" {
		return defaultModuleName
	}
	return c.ModuleName
}

func (c *Config) initialPages() uint32 {
	if c == nil || c.InitialPages == 0 {
		return 1
	}
	return c.InitialPages
}

func (c *Config) limitPages() uint32 {
	if c == nil || c.MemoryLimitPages == 0 || c.MemoryLimitPages > maxPages {
		return maxPages
	}
	return c.MemoryLimitPages
}
