package domain

// CascadeStep is one delete statement of a cascade and the number of rows it removed.
type CascadeStep struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// CascadeReport describes a committed cascade deletion, step by step in execution order.
type CascadeReport struct {
	Entity string        `json:"entity"`
	ID     int           `json:"id"`
	Steps  []CascadeStep `json:"steps"`
}

// Rows returns the total number of rows removed by the steps with the given name.
func (r *CascadeReport) Rows(name string) int64 {
	var n int64
	for _, s := range r.Steps {
		if s.Name == name {
			n += s.Rows
		}
	}
	return n
}

// Total returns the number of rows removed by the whole cascade.
func (r *CascadeReport) Total() int64 {
	var n int64
	for _, s := range r.Steps {
		n += s.Rows
	}
	return n
}
