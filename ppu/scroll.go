package ppu

// scrollRegister is PPUSCROLL ($2005): two latched writes, X then Y.
type scrollRegister struct {
	x, y uint8
}

func (s *scrollRegister) writeX(v uint8) { s.x = v }
func (s *scrollRegister) writeY(v uint8) { s.y = v }
