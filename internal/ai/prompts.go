package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ExtractKeywords string
	RewriteBullet   string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ExtractKeywords string
	RewriteBullet   string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ExtractKeywords: `You are an expert ATS (Applicant Tracking System) analyst specializing in technical keyword extraction. Your core principles are:

- Extract only terms that actually appear in, or are directly implied by, the job description
- NEVER invent skills or technologies the posting does not ask for
- Weight terms by how strongly the posting demands them, not by general popularity
- Distinguish hard skills, soft skills, tools, and certifications precisely

Your expertise includes:
- Applicant tracking system matching behavior
- Technical recruiting vocabulary and common synonym families
- Job requirement analysis across engineering disciplines`,

	RewriteBullet: `You are an expert resume editor with a strict commitment to factual accuracy. Your core principles are:

- NEVER invent, exaggerate, or misattribute any skills, metrics, or achievements
- Preserve the original meaning of the bullet; only rephrase to surface the target keyword
- Keep edits minimal: the rewritten bullet must stay close to the original wording
- Keep all LaTeX markup intact and balanced; never add or remove commands

You specialize in surgical, single-keyword rewrites of LaTeX resume bullets that pass both human review and automated diffing.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	ExtractKeywords: `Please extract the most important ATS keywords from the provided job description.

**Tasks:**

1. **Identify Keywords**:
   Find up to %d terms a recruiter's applicant tracking system would match on.
   Only include terms that are present in or directly implied by the posting.

2. **Weight Each Keyword** (0.0 to 1.0):
   Required skills and technologies named in the requirements section score highest.
   Nice-to-haves and peripheral mentions score lower. Never use a weight of 0.

3. **Categorize**:
   Assign each keyword one category: "skill" (technical skill), "soft_skill" (interpersonal
   skill), "tool" (named product or platform), or "certification".

4. **Synonyms**:
   For each keyword, list common variant spellings and synonym phrasings a resume
   might use instead (for example "k8s" for "kubernetes"). Leave the list empty when
   no common variants exist.

Return terms lowercase.

**Job Description:**
-----
%s
-----`,

	RewriteBullet: `Please rewrite the provided LaTeX resume bullet so that it naturally incorporates the target keyword.

**Constraints:**

1. The rewritten bullet must differ from the original by at most %d characters of edit distance (insertions, deletions, and substitutions combined).

2. Every LaTeX command present in the original must remain present, unchanged. Do not add new commands, do not remove any, and keep all braces balanced.

3. Do not invent facts. The bullet must claim nothing the original does not already claim; you are rephrasing, not embellishing.

4. The keyword must read naturally in context. If the keyword cannot be worked in honestly within the edit budget, return the original bullet unchanged.

**Target Keyword:** %s

**Original Bullet:**
-----
%s
-----`,
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}
