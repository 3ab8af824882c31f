package testutil

// Department returns a raw backend department record.
func Department(id, name, companyID, createdAt string) map[string]any {
	return map[string]any{"_id": id, "name": name, "companyId": companyID, "createdAt": createdAt}
}

// Meeting returns a raw backend meeting record.
func Meeting(id, title, date, clock string, guests ...string) map[string]any {
	m := map[string]any{"_id": id, "title": title, "date": date, "companyId": "c1"}
	if clock != "" {
		m["time"] = clock
	}
	if len(guests) > 0 {
		gs := make([]any, len(guests))
		for i, g := range guests {
			gs[i] = g
		}
		m["guests"] = gs
	}
	return m
}
