package sheet

import "position-desk/internal/interfaces"

func NewLoader() interfaces.TableLoader {
	return &Loader{}
}
