package pipeline

// Category is one section of the business plan and the topics it must cover.
type Category struct {
	Name   string
	Topics []string
}

// Taxonomy is the fixed, ordered set of business-plan categories. Its order is the
// table-of-contents order of every generated deck.
var Taxonomy = []Category{
	{"Essence of Business Idea", []string{
		"Detailed description of the product/service offered",
		"Clarification of the Unique Selling Proposition (USP)",
		"Long-term vision and social impact of the business",
	}},
	{"Market Analysis and Customer Understanding", []string{
		"Detailed profiling of the target customer segment",
		"In-depth analysis of customer issues and pain points",
		"Quantitative evaluation of market size, growth potential, and trends",
	}},
	{"Competitive Analysis and Differentiation Strategy", []string{
		"Identification and detailed analysis of key competitors (strengths, weaknesses)",
		"Clarification of the company's differentiation points",
		"Establishment and maintenance of competitive advantage",
	}},
	{"Business Model Design", []string{
		"Detailed design of revenue structure (consideration of multiple revenue streams)",
		"Analysis of cost structure (fixed costs, variable costs, initial investment)",
		"Pricing strategy and its rationale",
		"Methodology for scaling up",
	}},
	{"Marketing and Sales Strategy", []string{
		"Brand positioning and branding strategy",
		"Multifaceted consideration of customer acquisition channels",
		"Specific plan for promotional methods",
		"Formulation of customer retention strategy",
	}},
	{"Product/Service Development", []string{
		"Detailed list of key features and characteristics",
		"Development schedule and key milestones",
		"Identification of necessary technologies and resources",
		"Design of quality control and improvement processes",
	}},
	{"Operations and Supply Chain", []string{
		"Design of key business processes",
		"Supply chain optimization plan",
		"Methods for leveraging partnerships and external resources",
		"Consideration of technology implementation for operational efficiency",
	}},
	{"Financial Planning and Fundraising", []string{
		"Detailed income and expenditure forecast and break-even analysis",
		"Estimation of initial investment and working capital",
		"Methods and plans for fundraising (self-funding, investors, loans, etc.)",
		"Analysis and countermeasures for financial risks",
	}},
	{"Risk Management and Legal Considerations", []string{
		"Comprehensive identification and classification of potential risks",
		"Formulation of risk mitigation measures and contingency plans",
		"Confirmation of necessary permits and licenses",
		"Analysis of the impact of laws and regulations (intellectual property, labor law, consumer protection, etc.)",
	}},
	{"Organization and Human Resource Planning", []string{
		"Identification of necessary skill sets and personnel",
		"Design of organizational structure and role distribution",
		"Strategy for talent acquisition and development",
		"Plan for building corporate culture",
	}},
	{"Technology and Innovation", []string{
		"Identification of necessary technological infrastructure",
		"Planning of research and development",
		"Creation of mechanisms to promote innovation",
		"Strategies for responding to technological trends",
	}},
	{"Growth Strategy and Exit Strategy", []string{
		"Setting specific business goals for the next 3-5 years",
		"Planning for market expansion or entry into new markets",
		"Consideration of diversification or vertical integration possibilities",
		"Examination of long-term exit strategies (IPO, M&A, etc.)",
	}},
}
