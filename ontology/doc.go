// Package ontology holds the NLU result structures carried by intent
// messages and the routines that own their foreign representation.
//
// Intent and slot messages reference these structures through opaque owned
// pointers. Only this package knows their layout: Lower* routines build the
// foreign structure (atomically, nothing stays allocated on failure) and
// Release* routines free it (a null pointer is a no-op). There is no
// copy-out routine, so foreign ontology structures cannot be read back.
//
// Foreign layouts on a 32-bit target:
//
//	CIntentClassifierResult { intent_name: str, probability: f32 }          8/4
//	CSlot { value, raw_value, entity, slot_name: str, range_start,
//	        range_end: i32 }                                                24/4
//	CSlotList { slots: ptr -> CSlot[size], size: i32 }                       8/4
package ontology
