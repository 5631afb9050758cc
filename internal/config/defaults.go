package config

const (
	ConfigFileName     = "rustdocs.yaml"
	FnTemplateName     = "rustdoc_fn"
	StructTemplateName = "rustdoc_struct"
)

// DefaultConfigYAML targets a local OpenAI-compatible server.
const DefaultConfigYAML = `ai:
  provider: openai
  api_key: ""
  api_base: http://127.0.0.1:1234/v1
  model: qwen3-4b
  temperature: 0.2
  timeout: 120s
templates:
  function: rustdoc_fn
  struct: rustdoc_struct
output:
  dir: target/llm_rustdocs
  cache_db: target/llm_rustdocs/cache.db
patch:
  jobs: 0
  guard: true
`

const DefaultFnTemplateYAML = `system_prompt: You are a senior Rust engineer who writes precise, idiomatic rustdoc.
pre_user_message_content: |
  Here is a perfectly commented Rustdoc snippet for future reference. Please format your response exactly like it.

  # Rules for properly formatted Rustdocs
  1. Start every line with ///
  2. Start with a description
  3. Then print the Parameters, Returns, Errors, Notes, and Examples in that order.
  4. Do not insert breaks between comment lines.
post_user_message_content: "Please write comprehensive Rustdocs for this function. Return only the Rustdoc comment block. /nothink"
`

const DefaultStructTemplateYAML = `system_prompt: You are a senior Rust engineer who writes precise, idiomatic rustdoc.
pre_user_message_content: |
  Here is a perfectly commented Rustdoc snippet for future reference. Please format your response exactly like it.

  # Rules for properly formatted Rustdocs
  1. Start every line with ///
  2. Start with a description
  3. Do not insert breaks between comment lines.
post_user_message_content: "Please write comprehensive Rustdocs for this struct. Return only the Rustdoc comment block. /nothink"
response_format:
  name: rustdoc_struct_with_fields
  strict: true
  description: Represents Rustdoc for a struct and its fields.
  schema:
    type: object
    additionalProperties: false
    required:
      - struct_doc
      - fields
    properties:
      struct_doc:
        type: string
        description: Rustdoc for the struct (short 1-2 sentence summary). Every line must start with '///'.
        minLength: 1
        pattern: "^(///.*\\n?)+$"
      fields:
        type: array
        description: Array of per-field Rustdoc comments.
        items:
          type: object
          additionalProperties: false
          required:
            - name
            - doc
          properties:
            name:
              type: string
              description: Exact field name as it appears in the struct.
              minLength: 1
            doc:
              type: string
              description: Rustdoc for the field. Keep it short; each line must start with '///'.
              minLength: 1
              pattern: "^(///.*\\n?)+$"
`
