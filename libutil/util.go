package libutil

type Deleter interface {
	Delete()
}

func DeleteAll(objs []Deleter) {
	for _, obj := range objs {
		if obj != nil {
			obj.Delete()
		}
	}
}
