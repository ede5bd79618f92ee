package research

import "fmt"

// SystemPrompt frames the model as a researcher returning real data.
const SystemPrompt = "You are an expert business researcher. Provide REAL company information, not sample data. Use actual company names and websites."

// BuildPrompt returns the user prompt for a research request.
func BuildPrompt(industry, location, companySize string) string {
	return fmt.Sprintf(`Research 3-5 real companies in the %s industry located in %s.
Focus on %s sized companies that might need business services.

For each company, provide REAL company information:
- name: the real company name
- website: the actual company website
- industry: the industry subcategory
- size: estimated company size (employees)
- decision_makers: potential decision makers (real titles), as a list
- reasoning: why they might be a good lead

Return only a JSON array of company objects with exactly those keys. Use real company names and websites.`,
		industry, location, companySize)
}
