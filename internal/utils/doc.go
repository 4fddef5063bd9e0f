// Package utils provides small helpers shared by the commands.
package utils
