//go:build tesseract

package main

import _ "github.com/hejijunhao/khmerid/internal/recognizer/tesseract"
