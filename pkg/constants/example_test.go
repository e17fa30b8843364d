package constants_test

import (
	"fmt"

	"github.com/agentstation/mhcgcal/pkg/constants"
)

// Example shows the extended property keys that link remote events to local records.
func Example() {
	props := map[string]string{
		constants.RecordIDProperty: "R1",
		constants.CategoryProperty: "work",
	}

	_, tracked := props[constants.RecordIDProperty]
	fmt.Println(tracked)
	fmt.Printf("%o\n", constants.SecureFilePermissions)
	// Output:
	// true
	// 600
}
