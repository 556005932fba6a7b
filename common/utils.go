package common

import (
	"log"
	"runtime"
)

//HandleError logs err with the caller's position and reports whether there was one
func HandleError(err error) (b bool) {
	if err != nil {
		// 1 is the caller, 0 would be this function
		_, fn, line, _ := runtime.Caller(1)
		log.Printf("[error] %s:%d %v", fn, line, err)
		b = true
	}
	return
}
