package mcc

// Population is what the generation loop needs from a population of one
// kind. *Queue and *SpeciatedQueue satisfy it.
type Population[T any] interface {
	Children() []T
	Push(x T)
	Len() int
	Items() []T
	SaveState()
	SizeIncrease() (overall, last float64)
	ComplexityIncrease() (overall, last float64)
}

var (
	_ Population[*Maze]  = (*Queue[*Maze])(nil)
	_ Population[*Agent] = (*SpeciatedQueue[*Agent])(nil)
)

// admitViable pushes the children that met the minimal criterion and
// returns how many were admitted.
func admitViable[T Individual[T]](p Population[T], children []T) int {
	n := 0
	for _, c := range children {
		if c.IsViable() {
			p.Push(c)
			n++
		}
	}
	return n
}
