package mcpserver

// NoteFormatContract describes the canonical Markdown document format that
// LLM consumers should follow when creating or updating documents.
const NoteFormatContract = `# Ansuz Document Format Contract

Every Markdown document stored in Ansuz MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – falls back to the first heading
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
created: 2025-01-15                 # OPTIONAL – ISO-8601 date or datetime
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other documents by id.
` + "```" + `

## Rules

1. **Document ids** are lowercase slugs: letters a-z, digits, and hyphens
   only (e.g. ` + "`" + `project-ideas` + "`" + `, ` + "`" + `meeting-2025-01-20` + "`" + `). The id is the
   filename stem; the file is ` + "`" + `<id>.md` + "`" + ` at the vault root.
2. **Wikilinks** use double brackets around a document id: ` + "`" + `[[other-doc]]` + "`" + `.
   No aliases, no paths, no ` + "`" + `.md` + "`" + ` extension inside the brackets. Anything
   else between brackets is treated as plain text, not a link.
3. **Linking to a document that does not exist yet is fine.** The link shows
   up as broken until the target is created, then resolves automatically.
4. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
5. **Encoding** is UTF-8 with a trailing newline.
6. **No HTML** unless absolutely necessary; prefer Markdown equivalents.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
tags:
  - meeting-notes
  - project-x
created: 2025-01-20
---

# Weekly standup 2025-01-20

Attendees: Alice, Bob.

## Action items

- [[alice]] to review the [[design-doc]]
- Bob to update [[project-roadmap]]
` + "```" + `
`
