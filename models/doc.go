// Package models holds the school registry: the School aggregate and the
// Teacher, Class, Schedule and Subject records it owns.
//
// Cross-entity references (a teacher's subject, a schedule's class) are plain
// ids. Nothing checks that they resolve, and removals never cascade.
package models
