// Package errors provides coded, actionable errors for the renderbridge
// command and its configuration loader.
//
// Each error code maps to a registered template with a category, a short
// message and a longer explanation. Errors can carry a byte location in an
// input message; Format then prints a hex dump around the offending byte.
//
// # Usage
//
//	err := errors.New("R201").
//	    WithLocation("event.bin", data, 7).
//	    WithSuggestion("Check that the message starts with the format header")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R201: Malformed message
//	//
//	//   event.bin+0x7
//	//
//	//     0000 │ ff 0d 41 02 53 03 61 62 7a
//	//          │                      ^^
package errors
