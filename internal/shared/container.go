package shared

// elementContainer stores element fields as fixed-length columns, one value
// per locally owned element. Registry entries index into it.
type elementContainer struct {
	length  int
	columns [][]float64
}

func (c *elementContainer) add() int {
	c.columns = append(c.columns, make([]float64, c.length))
	return len(c.columns) - 1
}

func (c *elementContainer) column(i int) []float64 {
	return c.columns[i]
}
