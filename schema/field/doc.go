// Package field defines the semantic vocabulary shared by model declarations
// and the code generator: semantic types, UI hints, permission sets and the
// site annotation block.
//
// # Semantic Types
//
// Every declared attribute resolves to one of five semantic types. The
// declared type is matched by substring in a fixed priority order:
//
//	field.Classify("int")            // TypeInt
//	field.Classify("Optional[str]")  // TypeString
//	field.Classify("bool")           // TypeBool
//	field.Classify("float64")        // TypeFloat
//	field.Classify("datetime")       // TypeTime
//	field.Classify("uuid")           // TypeString (fallback)
//
// # Permissions
//
// Permissions are declared in word or letter form:
//
//	field.ParsePerm("read,create,update") // Read|Create|Update
//	field.ParsePerm("rc")                 // Read|Create
//	field.ParsePerm("")                   // hidden
//
// # Annotations
//
// Site metadata lives under the "site" key of an annotations block:
//
//	annotations:
//	  site:
//	    permissions: rc
//	    component: image
//	    translations:
//	      zh: 头像
package field
