package view

func (o Object) get(name string) (any, bool) {
	for _, f := range o {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func (o Object) names() []string {
	names := make([]string, len(o))
	for i, f := range o {
		names[i] = f.Name
	}
	return names
}

func declaredNames[T any](fields []field[T], g Group) []string {
	var names []string
	for _, f := range fields {
		if f.visibleIn(g) {
			names = append(names, f.name)
		}
	}
	return names
}

// fieldNames lists the statically declared fields of an entity kind visible in g
func fieldNames(kind string, g Group) []string {
	switch kind {
	case "category":
		return declaredNames(categoryFields, g)
	case "product":
		return declaredNames(productFields, g)
	case "image_product":
		return declaredNames(imageProductFields, g)
	case "user":
		return declaredNames(userFields, g)
	}
	return nil
}
