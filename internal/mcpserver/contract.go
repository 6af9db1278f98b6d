package mcpserver

// ActionContract describes the JSON carried by #action labels on search
// notes. LLM consumers should follow it when authoring search notes.
const ActionContract = `# Laguz Action Contract

A search note (type ` + "`" + `search` + "`" + `) selects notes with its query and applies
its actions to every match. Each action is one ` + "`" + `#action` + "`" + ` label whose value is a
JSON object. Actions run in label order; every action runs on one match
before the next match is visited.

## Selecting notes

- ` + "`" + `#searchString` + "`" + `: attribute query, e.g. ` + "`" + `#todo #status!=done` + "`" + `.
- ` + "`" + `~searchScript` + "`" + `: relation to a backend script note (type ` + "`" + `code` + "`" + `, mime
  ` + "`" + `application/javascript;env=backend` + "`" + `). When present it replaces the query;
  the script returns note ids or notes and sees the search note as
  ` + "`" + `api.originEntity` + "`" + `.
- Options: ` + "`" + `#fastSearch` + "`" + `, ` + "`" + `#includeArchivedNotes` + "`" + `, ` + "`" + `~ancestor` + "`" + ` with
  ` + "`" + `#ancestorDepth=eq1|lt2|gt1` + "`" + `, ` + "`" + `#orderBy` + "`" + `, ` + "`" + `#orderDirection=desc` + "`" + `,
  ` + "`" + `#limit` + "`" + `, ` + "`" + `#debug` + "`" + `.

The search note itself and the root note are never matched.

## Actions

| name | fields |
|---|---|
| ` + "`" + `deleteNote` + "`" + ` | none |
| ` + "`" + `deleteNoteRevisions` + "`" + ` | none |
| ` + "`" + `deleteLabel` + "`" + ` | ` + "`" + `labelName` + "`" + ` |
| ` + "`" + `deleteRelation` + "`" + ` | ` + "`" + `relationName` + "`" + ` |
| ` + "`" + `renameLabel` + "`" + ` | ` + "`" + `oldLabelName` + "`" + `, ` + "`" + `newLabelName` + "`" + ` |
| ` + "`" + `renameRelation` + "`" + ` | ` + "`" + `oldRelationName` + "`" + `, ` + "`" + `newRelationName` + "`" + ` |
| ` + "`" + `setLabelValue` + "`" + ` | ` + "`" + `labelName` + "`" + `, ` + "`" + `labelValue` + "`" + ` |
| ` + "`" + `setRelationTarget` + "`" + ` | ` + "`" + `relationName` + "`" + `, ` + "`" + `targetNoteId` + "`" + ` |
| ` + "`" + `executeScript` + "`" + ` | ` + "`" + `script` + "`" + ` |

Every action object has a ` + "`" + `name` + "`" + ` field from the table. Names are
case-sensitive. Objects that are not valid JSON, carry an unknown name or miss
a required field are skipped with a warning.

## Rules

1. **Only owned attributes are touched.** Inherited attributes are never
   renamed or deleted.
2. **setLabelValue / setRelationTarget** create the attribute when missing,
   otherwise update the first owned one.
3. **executeScript** runs JavaScript with a single binding, ` + "`" + `note` + "`" + `:
   ` + "`" + `note.setLabel(name, value)` + "`" + `, ` + "`" + `note.removeLabel(name)` + "`" + `,
   ` + "`" + `note.setRelation(name, targetId)` + "`" + `, ` + "`" + `note.removeRelation(name)` + "`" + `,
   ` + "`" + `note.setTitle(title)` + "`" + `, ` + "`" + `note.setContent(content)` + "`" + ` and the getters
   ` + "`" + `getLabelValue` + "`" + `, ` + "`" + `hasLabel` + "`" + `, ` + "`" + `getRelationTarget` + "`" + `. The note is saved
   after the script finishes. A blank script does nothing.
4. **Failures are per note.** A failing action on one note is logged and the
   run moves on.

## Example

` + "```" + `json
{"name": "renameLabel", "oldLabelName": "todo", "newLabelName": "done"}
{"name": "setRelationTarget", "relationName": "owner", "targetNoteId": "alice"}
{"name": "executeScript", "script": "note.setLabel('reviewed', 'yes')"}
` + "```" + `
`
