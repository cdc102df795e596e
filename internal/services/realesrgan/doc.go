// Package realesrgan runs the realesrgan-ncnn-vulkan CLI on one image at a
// time. Model, scale factor, and GPU selector are fixed per client.
package realesrgan
