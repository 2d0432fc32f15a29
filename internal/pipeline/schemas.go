package pipeline

import "github.com/dgallion1/deckforge/internal/llm"

var headSchema = llm.Object("headResponse",
	llm.Field("company_name", llm.String("Company that created the slide deck")),
	llm.Field("description", llm.String("Brief overview of the main content or focus of the slides")),
)

type headResponse struct {
	CompanyName string `json:"company_name"`
	Description string `json:"description"`
}

var pageSchema = llm.Object("pageResponse",
	llm.Field("main_topic", llm.String("")),
	llm.Field("body", llm.String("")),
	llm.Field("visual_elements", llm.ArrayOf(llm.String(""))),
	llm.Field("summary", llm.String("")),
)

func ideaSchema() *llm.Schema {
	return llm.Object("",
		llm.Field("main_idea", llm.String("")),
		llm.Field("strengths", llm.String("")),
		llm.Field("weaknesses", llm.String("")),
		llm.Field("opportunities", llm.String("")),
		llm.Field("threats", llm.String("")),
	)
}

var ideasSchema = llm.Object("BusinessIdeas",
	llm.Field("assetValuation", llm.String("Evaluation of the company's assets")),
	llm.Field("businessIdeas", llm.ArrayOf(ideaSchema())),
	llm.Field("bestIdea", ideaSchema()),
)

var slidesSchema = llm.Object("MarpSlides",
	llm.Field("slides", llm.ArrayOf(llm.Object("",
		llm.Field("title", llm.String("")),
		llm.Field("content", llm.String("Marp markdown body of the slide")),
	))),
)

type slidesResponse struct {
	Slides []SlideFragment `json:"slides"`
}
