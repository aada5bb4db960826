package bytecode

// ConstantCache interns literal values per module so identical
// constants share one slot in the literal pool.
type ConstantCache struct {
	ints    []int64
	intIdx  map[int64]int
	floats  []float64
	floatIdx map[float64]int
	strings  []string
	stringIdx map[string]int
	codes    []*CompiledCode
}

func NewConstantCache() *ConstantCache {
	return &ConstantCache{
		intIdx:    make(map[int64]int),
		floatIdx:  make(map[float64]int),
		stringIdx: make(map[string]int),
	}
}

func (c *ConstantCache) Int(v int64) int {
	if idx, ok := c.intIdx[v]; ok {
		return idx
	}
	idx := len(c.ints)
	c.ints = append(c.ints, v)
	c.intIdx[v] = idx
	return idx
}

func (c *ConstantCache) Float(v float64) int {
	if idx, ok := c.floatIdx[v]; ok {
		return idx
	}
	idx := len(c.floats)
	c.floats = append(c.floats, v)
	c.floatIdx[v] = idx
	return idx
}

func (c *ConstantCache) String(v string) int {
	if idx, ok := c.stringIdx[v]; ok {
		return idx
	}
	idx := len(c.strings)
	c.strings = append(c.strings, v)
	c.stringIdx[v] = idx
	return idx
}

func (c *ConstantCache) Code(code *CompiledCode) int {
	idx := len(c.codes)
	c.codes = append(c.codes, code)
	return idx
}

func (c *ConstantCache) IntAt(idx int) int64        { return c.ints[idx] }
func (c *ConstantCache) FloatAt(idx int) float64     { return c.floats[idx] }
func (c *ConstantCache) StringAt(idx int) string     { return c.strings[idx] }
func (c *ConstantCache) CodeAt(idx int) *CompiledCode { return c.codes[idx] }
