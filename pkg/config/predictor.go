package config

// PredictorConfig locates the model served by the workers. An empty
// ModelPath selects the built-in iris model.
type PredictorConfig struct {
	ModelPath     string `yaml:"model_path"`
	FastModelPath string `yaml:"fast_model_path"`
}

func defaultPredictorConfig() PredictorConfig {
	return PredictorConfig{}
}

func (p *PredictorConfig) applyEnv() {
	p.ModelPath = getEnv("MODEL_PATH", p.ModelPath)
	p.FastModelPath = getEnv("FAST_MODEL_PATH", p.FastModelPath)
}
