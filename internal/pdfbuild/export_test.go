package pdfbuild

import "image"

// Exported test-only accessors for unexported functions and fields.
// This file is compiled only during tests and does not affect the public API.

// ConfigForTest returns a copy of the processor configuration for assertions in tests.
func (processor *Processor) ConfigForTest() Options { return processor.config }

func (processor *Processor) ValidateConfigForTest() error { return processor.validateConfig() }

func (processor *Processor) RunFolderForTest(folder string) Outcome {
	return processor.runFolder(folder)
}

// Allow tests to inject a fake decoder.
func (processor *Processor) SetDecoderForTest(decode func(path string) (image.Image, error)) {
	processor.renderer.decode = decode
}

func (renderer *Renderer) SetDecoderForTest(decode func(path string) (image.Image, error)) {
	renderer.decode = decode
}

func FlattenAlphaForTest(img image.Image) image.Image { return flattenAlpha(img) }

func OutputPathForTest(outputDir, folder string) string { return outputPathFor(outputDir, folder) }
