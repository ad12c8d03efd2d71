package gateway

// GraphQL documents sent to the backend. The operation names are part of the
// backend contract.
const (
	loginDocument = `mutation login($email: String!, $password: String!) {
  login(input: {email: $email, password: $password }) {
    user {
      id
      email
    }
    token
  }
}`

	signupDocument = `mutation signup($firstName: String!, $lastName: String!, $email: String!, $password: String!) {
  signup(input: { firstName: $firstName, lastName: $lastName, email: $email, password: $password }) {
    user {
      id
      email
    }
    token
  }
}`

	updatePasswordDocument = `mutation updatepassword($id: ID!, $password: String!) {
  updatepassword(input: { id: $id, password: $password }) {
    user {
      id
      email
    }
    errors
    token
  }
}`

	createMemberDocument = `mutation createmember(
  $firstName: String!
  $lastName: String!
  $email: String!
  $role: String!
  $managerId: ID!
) {
  createmember(
    input: {
      firstName: $firstName
      lastName: $lastName
      email: $email
      role: $role
      managerId: $managerId
    }
  ) {
    employee {
      id
      firstName
      lastName
      email
      role
    }
    errors
  }
}`

	getMembersDocument = `query getmembers($id: ID!) {
  getmembers(id: $id) {
    id
    firstName
    lastName
    email
    role
    passwordSet
  }
}`
)

// Operation names.
const (
	OpLogin          = "login"
	OpSignup         = "signup"
	OpUpdatePassword = "updatepassword"
	OpCreateMember   = "createmember"
	OpGetMembers     = "getmembers"
)
