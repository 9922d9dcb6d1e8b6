package util

func MarshalJSON(v interface{}) ([]byte, error) {
	return marshalJSON(v)
}

func UnmarshalJSON(b []byte, v interface{}) error {
	if len(b) < 1 || string(b) == "null" {
		return nil
	}

	return unmarshalJSON(b, v)
}
