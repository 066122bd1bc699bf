package command

// NewDefaultRegistry registers the built-in commands.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := r.Register(
		FindKeyValue{},
		ShowFlags{},
		DumpStruct{},
		WhatIs{},
		Dis{},
		MemMap{},
		Help{Registry: r},
	); err != nil {
		return nil, err
	}
	return r, nil
}
