package server

import "strings"

const (
	Red        = "\033[31m"
	ResetColor = "\033[0m"
)

// colourMethod pads an HTTP method for the DEV route log and colours it by verb
func colourMethod(method string) string {
	colour := "\033[90m"
	switch method {
	case "GET":
		colour = "\033[32m"
	case "POST":
		colour = "\033[34m"
	case "PUT", "PATCH":
		colour = "\033[36m"
	case "DELETE":
		colour = Red
	}
	return colour + " " + method + strings.Repeat(" ", max(0, 7-len(method))) + ResetColor
}
