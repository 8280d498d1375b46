// Package resource provides integer handle tables for values owned by the
// host and referenced from the foreign side.
//
// A foreign caller cannot hold a Go pointer, so values crossing the
// boundary are registered in a Table and referenced by a Handle.
//
// # Handle Lifecycle
//
//	insert  - the table takes the value and returns a handle
//	borrow  - temporary access; the handle stays valid
//	remove  - the value leaves the table exactly once
//
// Handle 0 is reserved and always invalid. Removed handles are recycled.
//
// # Handle Table
//
//	table := resource.NewTable[*Record]()
//
//	h, err := table.Insert(tag, rec)
//
//	rec, err := table.Borrow(h)
//	// ... read rec ...
//	table.ReturnBorrow(h)
//
//	rec, err := table.Remove(h) // ErrBorrowed while a borrow is held
//
// Tags are caller-defined type identifiers; GetTagged refuses a handle
// whose tag does not match.
//
// # Observers
//
// Observers receive lifecycle events synchronously:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("%s handle %d", e.Type, e.Handle)
//	}))
//
// # Memory Management
//
// Values are not garbage collected from the table. Callers must Remove
// every handle, or call Close to drain the table; Close hands every
// remaining value to the supplied function.
package resource
