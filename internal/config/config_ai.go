package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetExtractConfig returns the AI configuration for keyword extraction with fallback to global config
func (c *Config) GetExtractConfig() OperationAIConfig {
	config := c.AI.Extract

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply extract-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.ExtractKeywords == "" {
		config.CustomPrompts.SystemPrompts.ExtractKeywords = c.AI.CustomPrompts.SystemPrompts.ExtractKeywords
	}
	if config.CustomPrompts.UserPrompts.ExtractKeywords == "" {
		config.CustomPrompts.UserPrompts.ExtractKeywords = c.AI.CustomPrompts.UserPrompts.ExtractKeywords
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.ExtractKeywordsFile == "" {
		config.CustomPrompts.SystemPrompts.ExtractKeywordsFile = c.AI.CustomPrompts.SystemPrompts.ExtractKeywordsFile
	}
	if config.CustomPrompts.UserPrompts.ExtractKeywordsFile == "" {
		config.CustomPrompts.UserPrompts.ExtractKeywordsFile = c.AI.CustomPrompts.UserPrompts.ExtractKeywordsFile
	}

	return config
}

// GetRewriteConfig returns the AI configuration for bullet rewriting with fallback to global config
func (c *Config) GetRewriteConfig() OperationAIConfig {
	config := c.AI.Rewrite

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply rewrite-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.RewriteBullet == "" {
		config.CustomPrompts.SystemPrompts.RewriteBullet = c.AI.CustomPrompts.SystemPrompts.RewriteBullet
	}
	if config.CustomPrompts.UserPrompts.RewriteBullet == "" {
		config.CustomPrompts.UserPrompts.RewriteBullet = c.AI.CustomPrompts.UserPrompts.RewriteBullet
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.RewriteBulletFile == "" {
		config.CustomPrompts.SystemPrompts.RewriteBulletFile = c.AI.CustomPrompts.SystemPrompts.RewriteBulletFile
	}
	if config.CustomPrompts.UserPrompts.RewriteBulletFile == "" {
		config.CustomPrompts.UserPrompts.RewriteBulletFile = c.AI.CustomPrompts.UserPrompts.RewriteBulletFile
	}

	return config
}

// GetLoadedExtractPrompts returns a copy of the loaded prompts for the extract operation
func (c *Config) GetLoadedExtractPrompts() OperationLoadedPrompts {
	return loadedPrompts.Extract
}

// GetLoadedRewritePrompts returns a copy of the loaded prompts for the rewrite operation
func (c *Config) GetLoadedRewritePrompts() OperationLoadedPrompts {
	return loadedPrompts.Rewrite
}

// GetLoadedGlobalPrompts returns a copy of the loaded global prompts
func (c *Config) GetLoadedGlobalPrompts() LoadedPrompts {
	return loadedPrompts.Global
}
