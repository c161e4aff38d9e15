package repository

import "errors"

var ErrCategoryNotFound = errors.New("category not found")
var ErrCategoryNameTaken = errors.New("category with this name already exists")
