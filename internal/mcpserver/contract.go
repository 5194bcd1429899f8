package mcpserver

// PostFormatContract describes the canonical post format that LLM
// consumers should follow when drafting posts.
const PostFormatContract = `# Vitrin Post Format Contract

Every blog post consists of two parts: a metadata entry in the post
index and a Markdown content file. The create_post tool takes them as
separate arguments.

## Metadata

- **title** (required): human-readable post title, up to 300 characters.
- **description** (required): short summary shown in listings, up to
  1000 characters.
- **author** (required): author display name.
- **slug** (optional): lowercase letters, digits and hyphens only, no
  slashes, max 200 characters. Derived from the title when omitted
  (e.g. "My First Post!" becomes "my-first-post").
- **tags** (optional): comma-separated, lowercase, kebab-case
  (e.g. "go, web-dev").

Dates and reading time are computed by the server. Posts created over
MCP are always drafts; publishing happens in the admin UI.

## Content

` + "```" + `markdown
# Post title

Body text in standard Markdown. UTF-8, trailing newline.

![description](/uploads/<slug>/image.png)
` + "```" + `

## Rules

1. **Content is plain Markdown.** No frontmatter; metadata lives in the
   index, never in the content file.
2. **Images** are referenced by absolute upload path:
   ` + "`" + `/uploads/<slug>/filename.png` + "`" + `. Do not use relative paths.
3. **Slugs are permanent.** They become URLs; changing one breaks links.
4. **No HTML** unless absolutely necessary; prefer Markdown equivalents.

## Example

create_post with:

- title: ` + "`" + `Shipping a Portfolio in Go` + "`" + `
- description: ` + "`" + `Notes from rebuilding my CV site as a single binary.` + "`" + `
- author: ` + "`" + `Harlan` + "`" + `
- tags: ` + "`" + `go, portfolio` + "`" + `
- content:

` + "```" + `markdown
# Shipping a Portfolio in Go

The whole site is one binary and a data directory.

![architecture sketch](/uploads/shipping-a-portfolio-in-go/sketch.png)
` + "```" + `
`
