package jobx

import "fmt"

func dataKey(id string) string   { return fmt.Sprintf("job:%s:data", id) }
func statusKey(id string) string { return fmt.Sprintf("job:%s:status", id) }
func resultKey(id string) string { return fmt.Sprintf("job:%s:result", id) }
func errorKey(id string) string  { return fmt.Sprintf("job:%s:error", id) }
