package normalize

import (
	"github.com/xeipuuv/gojsonschema"
)

const questionSchema = `{
  "type": "object",
  "required": ["question", "options"],
  "properties": {
    "question": {"type": "string", "minLength": 1},
    "options": {
      "type": "array",
      "minItems": 4,
      "maxItems": 4,
      "items": {"type": "string", "minLength": 1}
    },
    "correctOptionIndex": {"type": "integer"},
    "explanation": {"type": ["string", "null"]}
  },
  "anyOf": [
    {"required": ["correctOptionIndex"]},
    {
      "required": ["correctAnswer"],
      "properties": {"correctAnswer": {"type": "integer"}}
    }
  ]
}`

// The answer index range is left to quiz.QuizQuestion.Validate so it is only checked on the
// key that is actually used.
var questionValidator = mustSchema(questionSchema)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic("normalize: invalid question schema: " + err.Error())
	}
	return schema
}

// validElement reports whether one array element has the shape of a question.
func validElement(elem []byte) bool {
	result, err := questionValidator.Validate(gojsonschema.NewBytesLoader(elem))
	if err != nil {
		return false
	}
	return result.Valid()
}
