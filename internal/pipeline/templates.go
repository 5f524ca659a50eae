package pipeline

import "github.com/simiyu-dess/OnboardIQ/internal/domain"

const groundingRule = "Use ONLY the information supplied above. Do not add outside knowledge or assumptions."

// DefaultPersonas returns a fresh copy of the built-in role personas.
func DefaultPersonas() map[Role]Persona {
	return map[Role]Persona{
		Researcher: {
			Title:     "Research Analyst",
			Goal:      "Analyze and extract relevant information from documents, identify patterns, and gather evidence for analysis",
			Backstory: "Expert in document analysis, pattern recognition, and evidence gathering. Skilled at identifying relevant information from various document types including CVs, job descriptions, and company records.",
		},
		Analyst: {
			Title:     "Business Analyst",
			Goal:      "Analyze information, evaluate fit, assess qualifications, and provide detailed reasoning for recommendations",
			Backstory: "Experienced business analyst with expertise in candidate evaluation, job matching, and strategic analysis. Skilled at evaluating qualifications against requirements and providing evidence-based recommendations.",
		},
		Writer: {
			Title:     "Recommendation Specialist",
			Goal:      "Generate clear, actionable recommendations and comprehensive responses based on analysis",
			Backstory: "Expert in creating clear, actionable recommendations and comprehensive responses. Skilled at presenting analysis results in a structured, professional manner with clear reasoning and actionable insights.",
		},
		Validator: {
			Title:     "Quality Assurance & Validation specialist",
			Goal:      "Verify accuracy, completeness, and validity of analysis and recommendations against source documents",
			Backstory: "Detail-oriented specialist who ensures high quality output, validates claims against source documents, and ensures recommendations are well-supported by evidence.",
		},
	}
}

// Standard builds the researcher, writer, validator chain for a factual query.
func Standard(query string, fragments []domain.Fragment) Spec {
	return Spec{
		Name:    "Standard",
		Query:   query,
		Context: FormatContext(fragments),
		Roles:   DefaultPersonas(),
		Stages: []Stage{
			{
				ID:   "research",
				Role: Researcher,
				Instructions: `Analyze the following documents and extract relevant information about: {{.Query}}

DOCUMENTS:
{{.Context}}

Focus only on information that is explicitly stated in these documents. ` + groundingRule,
				ExpectedOutput: "A comprehensive list of relevant facts and information extracted specifically from the provided documents.",
			},
			{
				ID:   "write",
				Role: Writer,
				Instructions: `Based on the research findings below, generate a clear and accurate response to: {{.Query}}

RESEARCH FINDINGS:
{{.Upstream}}

` + groundingRule,
				ExpectedOutput: "A well-structured answer in natural language that addresses the query completely using only the provided document information.",
				DependsOn:      []string{"research"},
			},
			{
				ID:   "validate",
				Role: Validator,
				Instructions: `Verify the accuracy and completeness of the response below against the original documents, for the query: {{.Query}}

ORIGINAL DOCUMENTS:
{{.Context}}

RESPONSE TO VERIFY:
{{.Upstream}}

Ensure the response is factually accurate and complete based on the source documents. ` + groundingRule,
				ExpectedOutput: "An improved version of the response with any corrections or additions, ensuring accuracy against the source documents.",
				DependsOn:      []string{"write"},
			},
		},
	}
}

// Analytical builds the researcher, analyst, writer, validator chain for
// evaluation and recommendation queries.
func Analytical(query string, fragments []domain.Fragment) Spec {
	return Spec{
		Name:    "Analytical",
		Query:   query,
		Context: FormatContext(fragments),
		Roles:   DefaultPersonas(),
		Stages: []Stage{
			{
				ID:   "research",
				Role: Researcher,
				Instructions: `Analyze the following documents and extract ALL relevant information for: {{.Query}}

DOCUMENTS:
{{.Context}}

Focus on:
1. Specific qualifications, skills, and experiences
2. Dates, durations, and timelines
3. Company names, positions, and responsibilities
4. Educational background and certifications
5. Any gaps or inconsistencies in information
6. Relevant achievements and accomplishments

Extract information that could be relevant for evaluation, comparison, or recommendation purposes. ` + groundingRule,
				ExpectedOutput: "A comprehensive list of relevant facts, qualifications, experiences, and evidence extracted from the documents.",
			},
			{
				ID:   "analyze",
				Role: Analyst,
				Instructions: `Based on the research findings below, conduct a thorough analysis for: {{.Query}}

RESEARCH FINDINGS:
{{.Upstream}}

Consider:
1. How well do the qualifications match the requirements?
2. What are the strengths and weaknesses?
3. Are there any red flags or concerns?
4. What is the overall assessment?
5. What specific evidence supports your analysis?

Provide detailed reasoning and evaluation criteria. ` + groundingRule,
				ExpectedOutput: "A detailed analysis with evaluation criteria, strengths/weaknesses assessment, and evidence-based reasoning.",
				DependsOn:      []string{"research"},
			},
			{
				ID:   "recommend",
				Role: Writer,
				Instructions: `Based on the analysis below, provide a comprehensive response with clear recommendations for: {{.Query}}

ANALYSIS:
{{.Upstream}}

Structure your response to include:
1. **Summary of Findings**: Key points from the analysis
2. **Assessment**: Overall evaluation and fit
3. **Recommendations**: Clear, actionable recommendations
4. **Evidence**: Specific evidence from documents supporting your conclusions
5. **Next Steps**: Suggested actions or follow-up questions

` + groundingRule,
				ExpectedOutput: "A comprehensive response with clear recommendations, assessment, and actionable insights supported by evidence.",
				DependsOn:      []string{"analyze"},
			},
			{
				ID:   "validate",
				Role: Validator,
				Instructions: `Verify the accuracy and completeness of the analysis and recommendations below against the original documents, for the query: {{.Query}}

ORIGINAL DOCUMENTS:
{{.Context}}

RECOMMENDATION TO VERIFY:
{{.Upstream}}

Ensure:
1. All claims are supported by evidence from the documents
2. No important information was overlooked
3. The analysis is fair and balanced
4. Recommendations are reasonable and actionable
5. The response addresses the original query completely

` + groundingRule,
				ExpectedOutput: "A validated and improved version of the response with any corrections or additions, ensuring accuracy and completeness.",
				DependsOn:      []string{"recommend"},
			},
		},
	}
}
