package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating notes.
const NoteFormatContract = `# Othala Note Format Contract

Every Markdown note stored in Othala MUST follow this structure.

## Structure

` + "```" + `markdown
---
id: 9f0c2a14-7b3e-4a61-9c2d-1f8e5b6a0d42   # REQUIRED - stable identity, never reused
type: person                                # OPTIONAL - defaults to resource
title: Human-readable title                 # OPTIONAL - falls back to first H1, then file name
tags:                                       # OPTIONAL - YAML list
  - tag-one
aliases:                                    # OPTIONAL - alternate titles
  - Other Name
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **The id is the note's identity.** File paths are volatile; notes may be
   renamed or moved at any time. Never reference a note by path.
2. **References use double brackets with the target id:** ` + "`" + `[[id]]` + "`" + ` or
   ` + "`" + `[[id|Display Title]]` + "`" + `. A reference to an id with no note yet is
   valid; it resolves once the note is created.
3. **Types** are ` + "`" + `person` + "`" + `, ` + "`" + `organization` + "`" + `, ` + "`" + `account` + "`" + `,
   ` + "`" + `bookmark` + "`" + `, or ` + "`" + `resource` + "`" + ` (the default).
4. **Typed reference keys** carry the relationship graph:
   - person: ` + "`" + `organization` + "`" + `, ` + "`" + `relationships` + "`" + ` (list)
   - organization: ` + "`" + `parent` + "`" + `, ` + "`" + `subsidiaries` + "`" + ` (list)
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.

## Type-specific keys

- person: ` + "`" + `full_name` + "`" + `, ` + "`" + `emails` + "`" + `, ` + "`" + `phones` + "`" + `,
  ` + "`" + `role` + "`" + `, ` + "`" + `birthday` + "`" + `, ` + "`" + `last_contact` + "`" + `, ` + "`" + `social` + "`" + ` (map)
- organization: ` + "`" + `name` + "`" + `, ` + "`" + `website` + "`" + `, ` + "`" + `industry` + "`" + `, ` + "`" + `address` + "`" + `
- account: organization keys plus free-form fields such as ` + "`" + `account_number` + "`" + `
- bookmark: ` + "`" + `uri` + "`" + `
- resource: ` + "`" + `date` + "`" + `

## Example

` + "```" + `markdown
---
id: 4c1d9a2e-8f05-4b7c-a3d6-2e9b0c5f7a18
type: person
title: Ada Lovelace
organization: "[[acme-co|Acme Corporation]]"
emails:
  - ada@acme.example
tags:
  - mathematician
---

# Ada Lovelace

Working notes. See also [[babbage|Charles Babbage]].
` + "```" + `
`
