package mcpserver

// NoteFormatContract describes the Markdown note layout that indexes and the
// link graph understand.
const NoteFormatContract = `# zettl Note Format

Notes are Markdown files under the base directory. Permanent notes live in
` + "`notes/`" + `, daily fleeting notes in ` + "`fleets/YYYY-MM-DD.md`" + `.

## Structure

` + "```" + `markdown
---
title: Pen Holder
author: Ann
created: 2024-03-04 09:30:00
---

# Pen Holder

Body text in standard Markdown. Refer to other notes with [[notes/apple]].
` + "```" + `

## Rules

1. **Identifiers** are the path relative to the base directory, forward
   slashes, without the ` + "`.md`" + ` extension: ` + "`notes/apple/pen`" + `.
2. **Links** are ` + "`[[identifier]]`" + `. Matching is exact and case-sensitive;
   there are no aliases and no ` + "`|`" + ` display text. The text between the
   brackets may not contain ` + "`[`" + ` or ` + "`]`" + `.
3. A link whose target is not an existing note is reported as broken and is
   left out of the graph.
4. **Front matter** is written by zettl for new notes (` + "`title`" + `,
   ` + "`author`" + `, ` + "`created`" + ` as ` + "`YYYY-MM-DD HH:MM:SS`" + ` local time).
5. ` + "`_index.md`" + ` files are generated: one per directory, listing its notes
   and subdirectories newest first. Do not edit them; they are rewritten on
   every rebuild.
6. Files and directories starting with ` + "`.`" + ` are left out of indexes but
   still take part in the graph.
`
