package runcfg

// Presets returns the named built-in starting configurations a run can be
// based on before applying a config file's overrides.
func Presets() map[string]Settings {
	return map[string]Settings{
		"default-anisotropic": Default(),
	}
}
