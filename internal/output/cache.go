package output

import "maps"

// Cache holds the output of the last generation together with the version
// and inputs that produced it. The zero value is an empty, invalid cache.
type Cache struct {
	valid   bool
	version int
	inputs  map[string]string
	output  string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Lookup returns the cached output when it was produced for the same version
// and an identical inputs mapping.
func (c *Cache) Lookup(version int, inputs map[string]string) (string, bool) {
	if !c.valid || c.version != version {
		return "", false
	}
	if !maps.Equal(normalize(c.inputs), normalize(inputs)) {
		return "", false
	}
	return c.output, true
}

// Store replaces the cached entry.
func (c *Cache) Store(version int, inputs map[string]string, output string) {
	c.valid = true
	c.version = version
	c.inputs = maps.Clone(normalize(inputs))
	c.output = output
}

// Output returns the cached output, if any, regardless of inputs.
func (c *Cache) Output() (string, bool) {
	return c.output, c.valid
}

// ReplaceOutput overwrites the cached output while keeping the key it was
// stored under. It is a no-op on an invalid cache.
func (c *Cache) ReplaceOutput(output string) {
	if c.valid {
		c.output = output
	}
}

// Invalidate drops the cached entry.
func (c *Cache) Invalidate() {
	*c = Cache{}
}

func normalize(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
