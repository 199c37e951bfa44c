package curriculum

// courseSchema is the JSON schema every seed course document must satisfy.
const courseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "level": {"type": "string", "enum": ["beginner", "intermediate", "advanced"]},
    "duration": {"type": "string"},
    "lessons": {"type": "integer", "minimum": 0},
    "enrollments": {"type": "integer", "minimum": 0},
    "tags": {"type": "array", "items": {"type": "string"}},
    "is_locked": {"type": "boolean"},
    "topics": {"type": "array", "items": {"$ref": "#/definitions/topic"}}
  },
  "definitions": {
    "topic": {
      "type": "object",
      "required": ["id", "title"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "title": {"type": "string", "minLength": 1},
        "content": {"type": "string"},
        "is_locked": {"type": "boolean"},
        "duration_locked": {"type": "boolean"},
        "access_duration": {"type": "string"},
        "deadline": {"type": "string"},
        "images": {"type": "array", "items": {"type": "string"}},
        "questions": {"type": "array", "items": {"$ref": "#/definitions/question"}}
      }
    },
    "question": {
      "type": "object",
      "required": ["id", "question", "type"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "question": {"type": "string"},
        "type": {"type": "string", "enum": ["multiple_choice", "coding"]},
        "options": {"type": "array", "items": {"type": "string"}},
        "correct_answer": {"type": "string"},
        "starter_code": {"type": "string"},
        "test_cases": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "input": {"type": "string"},
              "expected_output": {"type": "string"},
              "hidden": {"type": "boolean"}
            }
          }
        }
      }
    }
  }
}`
