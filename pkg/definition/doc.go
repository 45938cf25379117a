/*
Package definition turns declarative component files into domain.ComponentDefinition values.

A definition names its initial data, its actions and its view:

	name: counter
	data:
	  value: 3
	actions:
	  plusOne:
	    fn: inc
	    input:
	      - value: ${data.value}
	    output:
	      data.value: ""
	  reset:
	    patch:
	      data.value: 0
	view: |
	  # Count: ${data.value}

Structured actions reference their function by name in a registry.Registry. Inputs are a list
of single-entry mappings because they bind to the function by position. An action with a
patch instead of fn evaluates the patch values as data definitions and dispatches them.
*/
package definition
