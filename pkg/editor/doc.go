// Package editor binds content field values to their DOM controls.
//
// A FieldEditor owns the semantic value of one field. SyncToDOM pushes that
// value into the control, SyncFromDOM pulls the control back into the value,
// and Attach installs the listeners that turn user edits into EventEdit
// notifications. SyncsTo and SyncValueFrom/SyncValueTo define how the value
// maps onto a flat parent record.
//
// Variants share behaviour by composing Base rather than by overriding it:
// each variant configures Base with its selector and replaces only the
// operations whose rules differ (checkbox state, password dirtiness, the
// id/value pair of enum references).
//
// Editors that need a richer sub-editor (asset pickers, nested records) embed
// Part and push a stack Editor onto the Stack; the stack routes the
// sub-editor's result back through the submit callback it was created with.
//
// All editors are confined to the loop their api.Context completes on.
package editor
